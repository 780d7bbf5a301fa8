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

import (
	"crypto/tls"

	"github.com/sabouaram/coord/certificates"
	tlsaut "github.com/sabouaram/coord/certificates/auth"
	liberr "github.com/sabouaram/coord/errors"
)

// TLSMaterial describes the optional TLS material for an endpoint. Enabled
// is mandatory for any non-loopback TCP endpoint, see Endpoint.IsLoopback.
type TLSMaterial struct {
	Enabled    bool
	CAFile     string
	CertFile   string
	KeyFile    string
	VerifyPeer bool
}

// build assembles a certificates.TLSConfig from the material and returns the
// raw *tls.Config for the given server name. A nil *tls.Config means
// plaintext. Missing cert/key or CA files fail before any socket is touched.
func (m TLSMaterial) build(serverName string) (*tls.Config, liberr.Error) {
	if !m.Enabled {
		return nil, nil
	}

	if m.CertFile == "" || m.KeyFile == "" {
		return nil, ErrorTLSMaterialMissing.Error(nil)
	}

	cfg := certificates.New()

	if err := cfg.AddCertificatePairFile(m.KeyFile, m.CertFile); err != nil {
		return nil, ErrorTLSMaterialMissing.Error(err)
	}

	if m.CAFile != "" {
		if err := cfg.AddRootCAFile(m.CAFile); err != nil {
			return nil, ErrorTLSMaterialMissing.Error(err)
		}
		if err := cfg.AddClientCAFile(m.CAFile); err != nil {
			return nil, ErrorTLSMaterialMissing.Error(err)
		}
	} else if m.VerifyPeer {
		return nil, ErrorTLSMaterialMissing.Error(nil)
	}

	if m.VerifyPeer {
		cfg.SetClientAuth(tlsaut.RequireAndVerifyClientCert)
	}

	return cfg.TLS(serverName), nil
}
