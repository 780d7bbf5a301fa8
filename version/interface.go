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

// Package version exposes a small self-describing build identity for a binary:
// package name, description, release, build hash, author, license and the
// root module path, derived by reflection from a caller-supplied anchor value.
package version

import (
	"time"

	liberr "github.com/sabouaram/coord/errors"
)

// Version describes the identity and build provenance of a binary or library.
type Version interface {
	GetPackage() string
	GetDescription() string
	GetBuild() string
	GetRelease() string
	GetAuthor() string
	GetPrefix() string
	GetDate() string
	GetTime() time.Time
	GetAppId() string
	GetHeader() string
	GetInfo() string
	GetRootPackagePath() string

	GetLicenseName() string
	GetLicenseLegal() string
	GetLicenseBoiler(additional ...License) string
	GetLicenseFull(additional ...License) string

	PrintInfo()
	PrintLicense(additional ...License)

	// CheckGo validates the running Go runtime against a version constraint
	// string (e.g. ">= 1.21", "~> 1.22") using the given comparison operator.
	CheckGo(version, operator string) liberr.Error
}

// NewVersion builds a Version from the given identity fields. anchor is any
// value whose reflected type is used to locate the caller's package path;
// numSubPackage walks that path up that many directories to derive the
// root module path returned by GetRootPackagePath.
func NewVersion(lic License, pkg, description, date, build, release, author, prefix string, anchor interface{}, numSubPackage int) Version {
	return newVersion(lic, pkg, description, date, build, release, author, prefix, anchor, numSubPackage)
}
