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
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"
	"time"
)

type version struct {
	lic License
	pkg string
	dsc string
	dte time.Time
	bld string
	rel string
	aut string
	pfx string
	rpp string
}

func newVersion(lic License, pkg, description, date, build, release, author, prefix string, anchor interface{}, numSubPackage int) Version {
	fullPkgPath := reflect.TypeOf(anchor).PkgPath()

	if pkg == "" || strings.EqualFold(pkg, "noname") {
		pkg = path.Base(fullPkgPath)
	}

	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		t = time.Now()
	}

	return &version{
		lic: lic,
		pkg: pkg,
		dsc: description,
		dte: t,
		bld: build,
		rel: release,
		aut: author,
		pfx: strings.ToUpper(prefix),
		rpp: rootPackagePath(fullPkgPath, numSubPackage),
	}
}

func rootPackagePath(fullPkgPath string, numSubPackage int) string {
	parts := strings.Split(fullPkgPath, "/")

	if numSubPackage < 0 {
		numSubPackage = 0
	}

	if numSubPackage >= len(parts) {
		numSubPackage = len(parts) - 1
	}

	return strings.Join(parts[:len(parts)-numSubPackage], "/")
}

func (v *version) GetPackage() string {
	return v.pkg
}

func (v *version) GetDescription() string {
	return v.dsc
}

func (v *version) GetBuild() string {
	return v.bld
}

func (v *version) GetRelease() string {
	return v.rel
}

func (v *version) GetAuthor() string {
	return fmt.Sprintf("%s (source: %s)", v.aut, v.rpp)
}

func (v *version) GetPrefix() string {
	return v.pfx
}

func (v *version) GetDate() string {
	return v.dte.Format(time.RFC1123)
}

func (v *version) GetTime() time.Time {
	return v.dte
}

func (v *version) GetAppId() string {
	return fmt.Sprintf("%s [Runtime: %s/%s]", v.rel, runtime.GOOS, runtime.GOARCH)
}

func (v *version) GetHeader() string {
	return fmt.Sprintf("%s %s (build %s)", v.pkg, v.rel, v.bld)
}

func (v *version) GetInfo() string {
	return fmt.Sprintf("Package: %s\nDescription: %s\nRelease: %s\nBuild: %s\nDate: %s\nAuthor: %s",
		v.pkg, v.dsc, v.rel, v.bld, v.GetDate(), v.GetAuthor())
}

func (v *version) GetRootPackagePath() string {
	return v.rpp
}

func (v *version) GetLicenseName() string {
	return v.lic.name()
}

func (v *version) GetLicenseLegal() string {
	return v.lic.legal()
}

func (v *version) GetLicenseBoiler(additional ...License) string {
	out := v.lic.boiler(v.pkg, v.dsc, v.aut, v.dte.Year())

	for _, a := range additional {
		out += "\n\n---\n\n" + a.boiler(v.pkg, v.dsc, v.aut, v.dte.Year())
	}

	return out
}

func (v *version) GetLicenseFull(additional ...License) string {
	out := v.lic.legal()

	for _, a := range additional {
		out += "\n\n---\n\n" + a.legal()
	}

	return out
}

func (v *version) PrintInfo() {
	fmt.Println(v.GetHeader())
	fmt.Println(v.GetInfo())
}

func (v *version) PrintLicense(additional ...License) {
	fmt.Println(v.GetLicenseBoiler(additional...))
}
