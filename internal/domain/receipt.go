package domain

import "io"

// Receipt is an uploaded proof of payment before it is stored.
type Receipt struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
