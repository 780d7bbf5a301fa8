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

package version

import (
	"runtime"
	"strings"

	hscvrs "github.com/hashicorp/go-version"

	liberr "github.com/sabouaram/coord/errors"
)

// CheckGo validates the running Go toolchain against a constraint such as
// ">= 1.21" or "~> 1.22". operator is prepended to version to build the
// constraint string consumed by hashicorp/go-version.
func (v *version) CheckGo(ver, operator string) liberr.Error {
	if ver == "" || operator == "" {
		return ErrorGoVersionInit.Error(nil)
	}

	cst, err := hscvrs.NewConstraint(strings.TrimSpace(operator) + " " + strings.TrimSpace(ver))
	if err != nil {
		return ErrorGoVersionInit.Error(err)
	}

	rtm := strings.TrimPrefix(runtime.Version(), "go")

	run, err := hscvrs.NewVersion(rtm)
	if err != nil {
		return ErrorGoVersionRuntime.Error(err)
	}

	if !cst.Check(run) {
		return ErrorGoVersionConstraint.Error(nil)
	}

	return nil
}
