package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/http/response"
)

// amountInput accepts "12.50" or 12.50 and keeps the literal text so no float rounding
// happens before decimal parsing.
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	*a = amountInput(b)
	return nil
}

func (a amountInput) parse(op string) (decimal.Decimal, error) {
	v, err := types.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, domainagg.NewError(domainagg.CodeInvalidAmount, op, err.Error(), err)
	}
	return v, nil
}

// optionalAmount distinguishes an absent field, an explicit null and a value.
type optionalAmount struct {
	set   bool
	null  bool
	value amountInput
}

func (o *optionalAmount) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(bytes.TrimSpace(b)) == "null" {
		o.null = true
		return nil
	}
	return o.value.UnmarshalJSON(b)
}

func (o optionalAmount) parse(op string) (*decimal.Decimal, bool, error) {
	if !o.set {
		return nil, false, nil
	}
	if o.null {
		return nil, true, nil
	}
	v, err := o.value.parse(op)
	if err != nil {
		return nil, false, err
	}
	return &v, false, nil
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, errors.New("malformed id"))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
