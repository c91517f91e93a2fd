package domain

// Principal is the verified caller of a request.
type Principal struct {
	Email   string
	Subject string
}
