package httpx

import (
	"errors"
	"net/http"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// RespondError maps domain errors onto the JSON envelope. Validation
// failures surface as 400 before any query work; data source failures
// as 500 without automatic retry, since every read is idempotent and
// the caller can simply reissue.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrDataSource):
		Fail(w, http.StatusInternalServerError, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "internal error")
	}
}
