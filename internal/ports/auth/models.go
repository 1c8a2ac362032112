package auth

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
}

// Authenticated indica si hay un usuario en sesión.
func (c Claims) Authenticated() bool {
	return c.UserID != ""
}

// Session es lo que devuelve el proveedor de identidad al autenticar.
type Session struct {
	Claims      Claims
	AccessToken string
}
