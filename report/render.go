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

// Package report renders a finished wire.SessionManifest into a JUnit-XML
// or JSON document for external tooling to consume.
package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"

	liberr "github.com/sabouaram/coord/errors"
	"github.com/sabouaram/coord/wire"
)

// Format discriminates the Render output.
type Format uint8

const (
	FormatJSON Format = iota
	FormatJUnit
)

// ParseFormat recognizes the coordctl --format flag values.
func ParseFormat(s string) (Format, liberr.Error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "junit":
		return FormatJUnit, nil
	default:
		return FormatJSON, ErrorFormatUnsupported.Error(nil)
	}
}

// Render produces the manifest document for the given format.
func Render(m wire.SessionManifest, format Format) ([]byte, liberr.Error) {
	switch format {
	case FormatJSON:
		return renderJSON(m)
	case FormatJUnit:
		return renderJUnit(m)
	default:
		return nil, ErrorFormatUnsupported.Error(nil)
	}
}

func renderJSON(m wire.SessionManifest) ([]byte, liberr.Error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, ErrorMarshal.Error(err)
	}
	return b, nil
}

type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Time     float64     `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

func renderJUnit(m wire.SessionManifest) ([]byte, liberr.Error) {
	suite := junitSuite{
		Name: m.SessionID,
		Time: float64(m.EndMs-m.StartMs) / 1000.0,
	}

	for _, inst := range m.Instances {
		suite.Tests++

		c := junitCase{
			Name:      fmt.Sprintf("%s[%d]", inst.Node, inst.Index),
			Classname: m.Group,
			Time:      float64(inst.EndMs-inst.StartMs) / 1000.0,
		}

		if inst.FailureReason != "" || inst.ExitCode != 0 || inst.TermSignal != 0 {
			suite.Failures++
			c.Failure = &junitFailure{
				Message: failureMessage(inst),
				Text:    inst.FailureReason,
			}
		}

		suite.Cases = append(suite.Cases, c)
	}

	if m.FailReason != "" && suite.Failures == 0 {
		suite.Tests++
		suite.Failures++
		suite.Cases = append(suite.Cases, junitCase{
			Name:      m.SessionID,
			Classname: m.Group,
			Failure:   &junitFailure{Message: m.FailReason, Text: m.FailReason},
		})
	}

	b, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, ErrorMarshal.Error(err)
	}

	return append([]byte(xml.Header), b...), nil
}

func failureMessage(inst wire.InstanceInfo) string {
	if inst.FailureReason != "" {
		return inst.FailureReason
	}
	if inst.TermSignal != 0 {
		return fmt.Sprintf("terminated by signal %d", inst.TermSignal)
	}
	return fmt.Sprintf("exited with code %d", inst.ExitCode)
}
