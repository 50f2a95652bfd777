package sigv4

import (
	"sort"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// PercentEncode encodes s with the strict encoding SigV4 requires for query
// parameters: every byte outside the RFC 3986 unreserved set (A-Za-z0-9 and
// "-._~") is percent-escaped. Space becomes %20, never +.
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '.' || c == '_' || c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}
	return b.String()
}

// CanonicalQueryString builds the canonical query component from a parameter
// map: values are strictly percent-encoded and key=value pairs are joined in
// byte-lexicographic key order. The input map is not modified.
//
// Callers must not supply the SigV4-reserved parameter names themselves
// (X-Amz-Algorithm, X-Amz-Credential, X-Amz-Date, X-Amz-SignedHeaders,
// X-Amz-Signature); colliding keys produce an unsigned duplicate and the
// request will be rejected by AWS.
func CanonicalQueryString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, PercentEncode(k)+"="+PercentEncode(params[k]))
	}
	return strings.Join(pairs, "&")
}

// CanonicalRequest assembles the canonical request string for a bodyless
// request signed over the host header only:
//
//	<METHOD>\n<uri>\n<query>\nhost:<host>\n\nhost\n<emptyPayloadHash>
//
// uri is the URL path component (already percent-normalized by the caller,
// "/" if empty) and query is the canonical query string from
// CanonicalQueryString.
func CanonicalRequest(method, uri, query, host string) string {
	if uri == "" {
		uri = "/"
	}
	return strings.Join([]string{
		method,
		uri,
		query,
		"host:" + host + "\n",
		SignedHeaders,
		EmptyPayloadHash,
	}, "\n")
}

// StringToSign builds the final string passed to the signature HMAC.
func StringToSign(amzDate, scope, canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		SHA256Hex([]byte(canonicalRequest)),
	}, "\n")
}
