/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package runner holds the small pieces shared by every background worker
// in this tree: the startStop lifecycle wrapper (see the startStop
// sub-package) and the panic-to-stderr recovery helper goroutines defer
// into before they return control to a runner.
package runner

import (
	"fmt"
	"os"
	"strings"
)

// RecoveryCaller logs a recovered panic to stderr instead of letting it
// escape a background goroutine. tag identifies the call site; r is the
// value returned by recover() (nil means no panic happened, in which case
// RecoveryCaller is a no-op); extra is joined in as additional context.
func RecoveryCaller(tag string, r interface{}, extra ...string) {
	if r == nil {
		return
	}

	msg := fmt.Sprintf("panic recovered in %s: %v", tag, r)
	if len(extra) > 0 {
		msg += " (" + strings.Join(extra, ", ") + ")"
	}

	fmt.Fprintln(os.Stderr, msg)
}
