package fineract

type reversalRequest struct {
	TransactionDate   string  `json:"transactionDate"`
	TransactionAmount float64 `json:"transactionAmount"`
	DateFormat        string  `json:"dateFormat"`
	TimeFormat        string  `json:"timeFormat"`
	Locale            string  `json:"locale"`
}

type repaymentRequest struct {
	IsUseHoldAmount   bool    `json:"isUseHoldAmount"`
	TransactionAmount float64 `json:"transactionAmount"`
	NpaAmount         float64 `json:"npaAmount"`
	TransactionDate   string  `json:"transactionDate"`
	DateFormat        string  `json:"dateFormat"`
	TimeFormat        string  `json:"timeFormat"`
	Locale            string  `json:"locale"`
	PaymentTypeId     int     `json:"paymentTypeId"`
	ChannelTypeId     int     `json:"channelTypeId"`
}

// CommandResponse is the ledger's acknowledgment of a write command.
type CommandResponse struct {
	OfficeId   int `json:"officeId"`
	ClientId   int `json:"clientId"`
	LoanId     int `json:"loanId"`
	ResourceId int `json:"resourceId"`
}

type apiErrorResponse struct {
	DefaultUserMessage string `json:"defaultUserMessage"`
	DeveloperMessage   string `json:"developerMessage"`
}

type authenticationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the user details the ledger returns on a successful
// authentication check.
type AuthResponse struct {
	Username      string `json:"username"`
	UserId        int    `json:"userId"`
	OfficeId      int    `json:"officeId"`
	OfficeName    string `json:"officeName"`
	Authenticated bool   `json:"authenticated"`
}
