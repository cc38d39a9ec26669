// Package qrcode renders magic link URLs as PNG QR codes so an
// administrator can hand a link to someone in person.
//
//	uri, err := qrcode.DataURI(linkURL, qrcode.WithSize(320))
//	// <img src="{{ uri }}">
package qrcode
