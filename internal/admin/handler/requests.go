package handler

import "strconv"

type loginRequest struct {
	PIN string `json:"pin"`
}

type setCategoryRequest struct {
	Category string `json:"category"`
}

// parseLimit returns 0 for absent or malformed limits so the service
// applies its default.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
