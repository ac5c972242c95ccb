package dto

type RegisterInput struct {
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
