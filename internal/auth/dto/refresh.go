package dto

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

type LogoutInput struct {
	RefreshToken string `json:"refreshToken"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	IPAddress       string `json:"-"`
	UserAgent       string `json:"-"`
}

type DeleteAccountInput struct {
	Password  string `json:"password"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type UpdateProfileInput struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
