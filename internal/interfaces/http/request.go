package httpinterface

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("payment_asset", func(fl validator.FieldLevel) bool {
		_, err := domain.ParsePaymentAsset(fl.Field().String())
		return err == nil
	})
	return v
}

type offerRequest struct {
	PaymentAsset string `json:"paymentAsset" validate:"required,payment_asset"`
	Price        uint64 `json:"price" validate:"required,gt=0"`
}

type payRequest struct {
	PaymentAsset string `json:"paymentAsset" validate:"required,payment_asset"`
	Amount       uint64 `json:"amount" validate:"required,gt=0"`
}

type royaltyRequest struct {
	Receivers  []string `json:"receivers" validate:"dive,required"`
	RatiosInBp []uint64 `json:"ratiosInBp"`
}

type overrideRequest struct {
	Resolver string `json:"resolver"`
}

type operatorRequest struct {
	Address string `json:"address" validate:"required"`
}

type webhookRequest struct {
	Event    string `json:"event" validate:"required"`
	Endpoint string `json:"endpoint" validate:"required,url"`
	Secret   string `json:"secret"`
}

type mintUnitRequest struct {
	Creator string `json:"creator" validate:"required"`
}

type approveUnitRequest struct {
	Spender string `json:"spender"`
}

type approveForAllRequest struct {
	Operator string `json:"operator" validate:"required"`
	Approved bool   `json:"approved"`
}

type mintFundsRequest struct {
	To           string `json:"to" validate:"required"`
	PaymentAsset string `json:"paymentAsset" validate:"required,payment_asset"`
	Amount       uint64 `json:"amount" validate:"required,gt=0"`
}

type approveFundsRequest struct {
	Spender string `json:"spender" validate:"required"`
	Token   string `json:"token" validate:"required"`
	Amount  uint64 `json:"amount"`
}

type transferRequest struct {
	PaymentAsset string `json:"paymentAsset" validate:"required,payment_asset"`
	Amount       uint64 `json:"amount" validate:"required,gt=0"`
	Op           string `json:"op" validate:"required,oneof=buy bid"`
}

// decode reads the JSON body of r into req and validates it.
func decode(r *http.Request, req interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return fmt.Errorf("%w: %s", errMalformedRequest, err)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", errInvalidRequest, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf(
			"%s failed on %s", strings.ToLower(e.Field()), e.Tag(),
		))
	}
	return strings.Join(msgs, ", ")
}

// assetKey reads the asset key from the path variables.
func assetKey(r *http.Request) (domain.AssetKey, error) {
	vars := mux.Vars(r)
	key := domain.NewAssetKey(domain.Address(vars["collection"]), vars["unit"])
	if err := key.Validate(); err != nil {
		return domain.AssetKey{}, err
	}
	return key, nil
}

func toAddresses(list []string) []domain.Address {
	addrs := make([]domain.Address, 0, len(list))
	for _, a := range list {
		addrs = append(addrs, domain.Address(a))
	}
	return addrs
}
