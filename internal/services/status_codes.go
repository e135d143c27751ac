package services

import (
	"fmt"
	"net/http"
)

// ConnectivityMessage is shown when the backend could not be reached at all.
const ConnectivityMessage = "Network Error: Unable to reach the server."

// CancelFallback is returned by CancelJob whenever the stop request does not succeed.
const CancelFallback = "Failed to stop Selenium sessions."

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Bad Request: Invalid input data. Please check the form fields.",
	http.StatusUnauthorized:        "Unauthorized: Invalid credentials provided.",
	http.StatusForbidden:           "Forbidden: You do not have the required permissions.",
	http.StatusNotFound:            "Not Found: The requested endpoint does not exist.",
	http.StatusRequestTimeout:      "Request Timeout: The server took too long to respond.",
	http.StatusTooManyRequests:     "Too Many Requests: Slow down, you have exceeded the request limit.",
	http.StatusInternalServerError: "Internal Server Error: Something went wrong on the backend.",
	http.StatusBadGateway:          "Bad Gateway: The server received an invalid response from an upstream service.",
	http.StatusServiceUnavailable:  "Service Unavailable: The backend is overloaded or under maintenance.",
	http.StatusGatewayTimeout:      "Gateway Timeout: The backend took too long to respond.",
}

// StatusMessage maps an HTTP status code to the sentence shown to the user.
func StatusMessage(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unexpected Error: HTTP %d", code)
}
