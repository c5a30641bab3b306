package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table         string
	ID            string
	Email         string
	Phone         string
	Password      string
	DisplayName   string
	Role          string
	Status        string
	EmailVerified string
	PhoneVerified string
	LastLoginAt   string
	CreatedAt     string
	UpdatedAt     string
	DeletedAt     string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:         "users.account",
	ID:            "id",
	Email:         "email",
	Phone:         "phone",
	Password:      "passwordhash",
	DisplayName:   "displayname",
	Role:          "role",
	Status:        "status",
	EmailVerified: "emailverified",
	PhoneVerified: "phoneverified",
	LastLoginAt:   "lastloginat",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
	DeletedAt:     "deletedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Phone, t.Password, t.DisplayName, t.Role,
		t.Status, t.EmailVerified, t.PhoneVerified, t.LastLoginAt,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
