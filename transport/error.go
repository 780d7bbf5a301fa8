/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package transport

import "github.com/sabouaram/coord/errors"

const (
	ErrorTLSRequired errors.CodeError = iota + errors.MinPkgTransport
	ErrorTLSMaterialMissing
	ErrorListen
	ErrorConnect
	ErrorAccept
	ErrorHandshake
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorTLSRequired)
	errors.RegisterIdFctMessage(ErrorTLSRequired, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorTLSRequired:
		return "tls is mandatory for non-loopback tcp endpoints"
	case ErrorTLSMaterialMissing:
		return "tls enabled but certificate material is missing"
	case ErrorListen:
		return "cannot bind listener"
	case ErrorConnect:
		return "cannot connect to endpoint"
	case ErrorAccept:
		return "cannot accept connection"
	case ErrorHandshake:
		return "tls handshake failed"
	}

	return ""
}
