package models

import "strings"

const keyPrefix = "rl"

// SanitizeKeySegment replaces the ':' delimiter so an identifier such as an
// IPv6 address cannot spill into an adjacent key segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// BucketKey is the store key for one client in one class.
func BucketKey(class EndpointClass, clientIP string) string {
	return keyPrefix + ":" + string(class) + ":" + SanitizeKeySegment(clientIP)
}
