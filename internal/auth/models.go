package auth

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Account is the credential view of a user row. The profile fields live in
// the profile package; registration seeds both in one insert.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Provider     string `json:"provider"`
	CreatedAt    int64  `json:"created_at"`
}

// Session is the authenticated caller identity handed to every workflow
// call. It is resolved once per request by the JWT middleware instead of
// living in ambient global state.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
