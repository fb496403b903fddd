package register

import (
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/checkout"
	"github.com/noah-isme/drinkpos/internal/common"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/order"
)

// toAppError maps register and core errors onto API error codes. Unknown errors pass
// through and render as internal failures.
func toAppError(err error) error {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.As(err, &verrs):
		appErr := common.NewAppError("VALIDATION_FAILED", "invalid item", http.StatusUnprocessableEntity, err)
		appErr.Details = fieldErrors(verrs)
		return appErr
	case errors.Is(err, ErrCartNotFound):
		return common.NewAppError("CART_NOT_FOUND", "cart not found", http.StatusNotFound, err)
	case errors.Is(err, cart.ErrLineNotFound):
		return common.NewAppError("LINE_NOT_FOUND", "cart line not found", http.StatusNotFound, err)
	case errors.Is(err, menu.ErrDrinkNotFound):
		return common.NewAppError("DRINK_NOT_FOUND", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, menu.ErrUnknownCategory):
		appErr := common.BadRequest(err.Error(), err)
		appErr.Code = "UNKNOWN_CATEGORY"
		appErr.Details = map[string]any{"categories": menu.Categories()}
		return appErr
	case errors.Is(err, checkout.ErrEmptyCart):
		return common.Conflict("EMPTY_CART", "cart is empty", err)
	case errors.Is(err, order.ErrNotFound):
		return common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, err)
	default:
		return err
	}
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	common.WriteError(w, toAppError(err))
}
