package services_test

import (
	"testing"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationHelper_MoneyTag(t *testing.T) {
	v := services.NewValidationHelper()

	req := dto.TransferRequest{FromAccountID: "a", ToAccountID: "b", Amount: dec("1.00005")}
	err := v.ValidateStruct(req)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "Amount failed on 'money'")

	req.Amount = dec("1.50000")
	assert.NoError(t, v.ValidateStruct(req))
	assert.NoError(t, v.ValidateStruct(&req))

	loan := dto.LoanApplicationRequest{
		LoanScheduleRequest: dto.LoanScheduleRequest{Amount: dec("100.123456"), DurationMonths: 3},
		EmployeeID:          "emp-1",
	}
	assert.ErrorIs(t, v.ValidateStruct(loan), apperrors.ErrValidation)

	loan.Amount = dec("100.1234")
	assert.NoError(t, v.ValidateStruct(loan))
}
