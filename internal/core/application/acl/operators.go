// Package acl keeps the set of trusted operators of the engine.
package acl

import (
	"sync"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

var ErrNotAdmin = domain.NewError(
	domain.KindAuthorization, "NOT_ADMIN", "caller is not the engine admin",
)

// Operators is the set of addresses allowed to call the privileged operations
// of escrow and settlement, and to cancel or finalize offers on behalf of the
// sellers. The admin is always an operator and is the only one allowed to
// change the set.
type Operators struct {
	admin domain.Address

	lock sync.RWMutex
	set  map[domain.Address]struct{}
}

func NewOperators(admin domain.Address, operators ...domain.Address) *Operators {
	set := make(map[domain.Address]struct{})
	for _, op := range operators {
		if !op.IsZero() {
			set[op] = struct{}{}
		}
	}
	return &Operators{admin: admin, set: set}
}

func (o *Operators) Admin() domain.Address {
	return o.admin
}

func (o *Operators) IsOperator(addr domain.Address) bool {
	if addr.IsZero() {
		return false
	}
	if addr == o.admin {
		return true
	}

	o.lock.RLock()
	defer o.lock.RUnlock()

	_, ok := o.set[addr]
	return ok
}

func (o *Operators) Add(caller, addr domain.Address) error {
	if caller != o.admin {
		return ErrNotAdmin
	}
	if addr.IsZero() {
		return domain.ErrZeroAddress
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	o.set[addr] = struct{}{}
	return nil
}

func (o *Operators) Remove(caller, addr domain.Address) error {
	if caller != o.admin {
		return ErrNotAdmin
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	delete(o.set, addr)
	return nil
}

// List returns the operators other than the admin.
func (o *Operators) List() []domain.Address {
	o.lock.RLock()
	defer o.lock.RUnlock()

	list := make([]domain.Address, 0, len(o.set))
	for addr := range o.set {
		list = append(list, addr)
	}
	sortAddresses(list)
	return list
}
