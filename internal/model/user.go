package model

// User is the projected record of a wallet that created tokens.
type User struct {
	Address       string         `json:"address"`
	LastActive    string         `json:"lastActive"`
	CreatedTokens []CreatedToken `json:"createdTokens"`
}

// CreatedToken is an entry in a user's created tokens list.
type CreatedToken struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	ImageURL    string `json:"imageUrl"`
	FundingGoal string `json:"fundingGoal"`
	Timestamp   string `json:"timestamp"`
}
