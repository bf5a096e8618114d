package dto

// ListParams is the paging window shared by list endpoints.
type ListParams struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ListAccountsParams filters the account list.
type ListAccountsParams struct {
	ListParams
	StationID  string `form:"stationID"`
	ActiveOnly bool   `form:"activeOnly"`
}

// ListEntriesParams filters the journal. Dates are YYYY-MM-DD.
type ListEntriesParams struct {
	ListParams
	AccountID  string `form:"accountID"`
	TransferID string `form:"transferID"`
	Reconciled *bool  `form:"reconciled"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// ListPettyCashParams filters petty cash entries.
type ListPettyCashParams struct {
	ListParams
	StationID string `form:"stationID"`
	Kind      string `form:"kind" binding:"omitempty,oneof=withdrawal replenishment"`
	Status    string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// ListLoansParams filters loans.
type ListLoansParams struct {
	ListParams
	EmployeeID string `form:"employeeID"`
	StationID  string `form:"stationID"`
	Status     string `form:"status" binding:"omitempty,oneof=pending active completed rejected cancelled"`
}
