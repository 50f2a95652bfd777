// Package sigv4 implements the AWS Signature Version 4 signing primitives
// used by the query-protocol client: HMAC-SHA256, signing key derivation,
// and canonical request construction for signed GET requests.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	// Algorithm is the SigV4 algorithm identifier sent in X-Amz-Algorithm.
	Algorithm = "AWS4-HMAC-SHA256"

	// SignedHeaders is the signed header list for query-signed GET requests.
	// Only the host header is covered by the signature.
	SignedHeaders = "host"

	// EmptyPayloadHash is SHA256Hex of the empty byte string. GET requests
	// carry no body, so every request uses this payload hash.
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	scopeTerminator = "aws4_request"
)

// HMACSHA256 returns the HMAC-SHA256 digest of message under key.
func HMACSHA256(key []byte, message string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

// DeriveKey derives the SigV4 signing key for the given secret key and scope
// components. The key is the result of a four-stage HMAC chain where each
// stage is keyed by the previous stage's output:
//
//	HMAC(HMAC(HMAC(HMAC("AWS4"+secret, date), region), service), "aws4_request")
//
// date must be in YYYYMMDD form. The derivation is deterministic and cheap
// enough to recompute per request, which keeps day-boundary handling correct
// without a cache.
func DeriveKey(secretKey, date, region, service string) []byte {
	kDate := HMACSHA256([]byte("AWS4"+secretKey), date)
	kRegion := HMACSHA256(kDate, region)
	kService := HMACSHA256(kRegion, service)
	return HMACSHA256(kService, scopeTerminator)
}

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CredentialScope returns the signing scope string date/region/service/aws4_request.
func CredentialScope(date, region, service string) string {
	return date + "/" + region + "/" + service + "/" + scopeTerminator
}
