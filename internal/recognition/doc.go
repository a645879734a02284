// Package recognition runs the OCR stage: raw document bytes go to the
// recognition service, recognized page text comes back as the payload every
// later stage derives from.
//
// Stage behavior:
//   - Rate limits and 5xx responses from the service bubble up as retryable.
//   - Authentication and malformed-input failures are terminal.
//   - A document whose pages contain no text at all fails validation; there
//     is nothing downstream stages could extract.
package recognition
