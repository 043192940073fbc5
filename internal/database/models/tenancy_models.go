package models

import "time"

const (
	ContractStatusActive    = "active"
	ContractStatusCancelled = "cancelled"
)

const (
	ContractTypeResidential = "residential"
	ContractTypeCommercial  = "commercial"
	ContractTypeRightOfUse  = "right_of_use"
)

const (
	PaymentFreqMonthly    = "monthly"
	PaymentFreqQuarterly  = "quarterly"
	PaymentFreqSemiAnnual = "semi_annual"
	PaymentFreqAnnual     = "annual"
)

const (
	PaymentStatusDue           = "due"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusPaid          = "paid"
)

// Fixed cancellation reason enumeration.
const (
	CancelReasonEntryError    = "entry_error"
	CancelReasonDuplicate     = "duplicate_contract"
	CancelReasonAdminError    = "administrative_error"
	CancelReasonTenantRequest = "tenant_request"
	CancelReasonUnitVacated   = "unit_vacated"
	CancelReasonOther         = "other"
)

type Tenant struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Name        string     `gorm:"uniqueIndex;not null"`
	Type        *string    `gorm:"type:varchar(32)"`
	Phone       *string    `gorm:"type:varchar(32)"`
	Email       *string    `gorm:"type:varchar(128)"`
	NationalID  *string    `gorm:"type:varchar(64)"`
	Address     *string    `gorm:"type:text"`
	Notes       *string    `gorm:"type:text"`
	CreatedDate *time.Time `gorm:"type:date;autoCreateTime"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime"`
}

type Contract struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ContractNumber string    `gorm:"uniqueIndex;not null"`
	TenantID       int64     `gorm:"index;not null"`
	ContractType   string    `gorm:"type:varchar(32);not null"`
	RentAmount     string    `gorm:"type:decimal(18,2);not null"` // annual
	PaymentFreq    string    `gorm:"type:varchar(16);not null"`
	StartDate      time.Time `gorm:"type:date;not null"`
	EndDate        time.Time `gorm:"type:date;not null"`
	VATRate        string    `gorm:"type:decimal(5,4);not null;default:0"`
	Status         string    `gorm:"type:varchar(16);index;not null;default:active"`

	CancellationReason *string    `gorm:"type:text"`
	CancelledBy        *string    `gorm:"type:varchar(64)"`
	CancellationDate   *time.Time `gorm:"type:date"`

	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`

	Tenant   *Tenant   `gorm:"foreignKey:TenantID"`
	Units    []Unit    `gorm:"many2many:contract_units"`
	Payments []Payment `gorm:"foreignKey:ContractID"`
}

// ContractUnit is the association row behind Contract.Units. Declared
// explicitly so both membership directions can be queried without loading
// whole contracts.
type ContractUnit struct {
	ContractID int64 `gorm:"primaryKey"`
	UnitID     int64 `gorm:"primaryKey;index"`
}

func (ContractUnit) TableName() string {
	return "contract_units"
}

type Payment struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	ContractID    int64      `gorm:"index;not null"`
	PaymentNumber int32      `gorm:"not null"`
	DueDate       time.Time  `gorm:"type:date;index;not null"`
	PaidDate      *time.Time `gorm:"type:date"`

	Amount          string `gorm:"type:decimal(18,2);not null"`
	VAT             string `gorm:"type:decimal(18,2);not null"`
	Total           string `gorm:"type:decimal(18,2);not null"`
	PaidAmount      string `gorm:"type:decimal(18,2);not null;default:0"`
	RemainingAmount string `gorm:"type:decimal(18,2);not null;default:0"`

	Status        string  `gorm:"type:varchar(16);index;not null;default:due"`
	Beneficiary   *string `gorm:"type:varchar(32)"`
	PaymentMethod *string `gorm:"type:varchar(32)"`
	ReceiptRef    *string `gorm:"type:varchar(64)"`

	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`

	Contract *Contract `gorm:"foreignKey:ContractID"`
}
