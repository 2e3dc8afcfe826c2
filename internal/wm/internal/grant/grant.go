// Package grant issues the token required to write a toplevel's tiled edges
// directly. Only packages below internal/wm can import it.
package grant

// Token is proof that the caller is one of the window-manager subsystems
// allowed to set tiled edges without going through a Maximization.
type Token struct {
	_ struct{}
}

// Issue returns a token.
func Issue() Token {
	return Token{}
}
