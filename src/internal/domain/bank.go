package domain

type BankStatus string

const (
	BankStatusActive   BankStatus = "ACTIVE"
	BankStatusInactive BankStatus = "INACTIVE"
)

type Bank struct {
	ID          string
	Name        string
	SwiftCode   string
	APIEndpoint string
	Status      BankStatus
}
