package schema

// UserOneTimeCodeTable represents the 'users.onetimecode' table
type UserOneTimeCodeTable struct {
	Table     string
	ID        string
	UserID    string
	Purpose   string
	CodeHash  string
	Attempts  string
	Consumed  string
	ExpiresAt string
	CreatedAt string
}

// UserOneTimeCode is the schema definition for users.onetimecode
var UserOneTimeCode = UserOneTimeCodeTable{
	Table:     "users.onetimecode",
	ID:        "id",
	UserID:    "userid",
	Purpose:   "purpose",
	CodeHash:  "codehash",
	Attempts:  "attempts",
	Consumed:  "consumed",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserOneTimeCodeTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Purpose, t.CodeHash, t.Attempts,
		t.Consumed, t.ExpiresAt, t.CreatedAt,
	}
}
