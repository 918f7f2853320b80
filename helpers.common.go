package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/uuid"
)

type (
	ContextKey        string
	missingFieldError string
	invalidFieldError string
)

const (
	RequestIDPrefix      string     = "r"
	ContextRequestID     ContextKey = "request.id"
	ContextRequestNumber ContextKey = "request.number"
)

const (
	defaultListSkip  = 0
	defaultListLimit = 10
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

func (m invalidFieldError) Error() string {
	return string(m)
}

// GenerateID provides a random uid with a given prefix.
func GenerateID(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val := ctx.Value(ContextRequestNumber); val != nil {
		return val.(uint64)
	}
	return 0
}

// DecodeCreateBookRequestBody is a helper function to read the content of a book creation request.
func DecodeCreateBookRequestBody(r *http.Request, input *BookCreate) error {
	if r.Body == nil {
		return errors.New("invalid create book request body")
	}
	return json.NewDecoder(r.Body).Decode(input)
}

// DecodeUpdateBookRequestBody is a helper function to read the content of a book update request.
func DecodeUpdateBookRequestBody(r *http.Request, update *BookUpdate) error {
	if r.Body == nil {
		return errors.New("invalid update book request body")
	}
	return json.NewDecoder(r.Body).Decode(update)
}

// ValidateCreateBookRequestBody is a helper function to check if the content of a book creation request is valid.
func ValidateCreateBookRequestBody(input *BookCreate) error {
	if len(input.Title) == 0 {
		return missingFieldError("title")
	}

	if len(input.Author) == 0 {
		return missingFieldError("author")
	}

	if len(input.ISBN) == 0 {
		return missingFieldError("isbn")
	}

	if len(input.ISBN) != 13 {
		return invalidFieldError("isbn must be exactly 13 characters")
	}

	if input.Price == nil {
		return missingFieldError("price")
	}

	return nil
}

// ValidateUpdateBookRequestBody is a helper function to check if the content of a book
// update request is valid. Only the fields carried by the request get checked.
func ValidateUpdateBookRequestBody(update *BookUpdate) error {
	if update.Title != nil && len(*update.Title) == 0 {
		return invalidFieldError("title must not be empty")
	}

	if update.Author != nil && len(*update.Author) == 0 {
		return invalidFieldError("author must not be empty")
	}

	if update.ISBN != nil && len(*update.ISBN) != 13 {
		return invalidFieldError("isbn must be exactly 13 characters")
	}

	return nil
}

// ParseListBooksQuery extracts the pagination parameters of a books listing
// request. Absent parameters fall back to skip=0 and limit=10. There is no
// upper bound enforced on limit, callers are trusted.
func ParseListBooksQuery(r *http.Request) (int, int, error) {
	skip, limit := defaultListSkip, defaultListLimit
	q := r.URL.Query()

	if v := q.Get("skip"); len(v) != 0 {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, invalidFieldError("skip must be a non-negative integer")
		}
		skip = n
	}

	if v := q.Get("limit"); len(v) != 0 {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, invalidFieldError("limit must be a non-negative integer")
		}
		limit = n
	}

	return skip, limit, nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
