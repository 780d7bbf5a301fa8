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

import "fmt"

// License identifies one of the well known open source license families.
type License uint8

const (
	License_MIT License = iota
	License_GNU_GPL_v3
	License_GNU_Affero_GPL_v3
	License_GNU_Lesser_GPL_v3
	License_Mozilla_PL_v2
	License_Apache_v2
	License_Unlicense
	License_Creative_Common_Zero_v1
	License_Creative_Common_Attribution_v4_int
	License_Creative_Common_Attribution_Share_Alike_v4_int
	License_SIL_Open_Font_1_1
)

func (l License) name() string {
	switch l {
	case License_MIT:
		return "MIT License"
	case License_GNU_GPL_v3:
		return "GNU GENERAL PUBLIC LICENSE, Version 3"
	case License_GNU_Affero_GPL_v3:
		return "GNU AFFERO GENERAL PUBLIC LICENSE, Version 3"
	case License_GNU_Lesser_GPL_v3:
		return "GNU LESSER GENERAL PUBLIC LICENSE, Version 3"
	case License_Mozilla_PL_v2:
		return "Mozilla Public License, Version 2.0"
	case License_Apache_v2:
		return "Apache License, Version 2.0"
	case License_Unlicense:
		return "Free and unencumbered software"
	case License_Creative_Common_Zero_v1:
		return "Creative Commons CC0 1.0 Universal"
	case License_Creative_Common_Attribution_v4_int:
		return "Creative Commons Attribution 4.0 International"
	case License_Creative_Common_Attribution_Share_Alike_v4_int:
		return "Creative Commons Attribution-ShareAlike 4.0 International"
	case License_SIL_Open_Font_1_1:
		return "SIL OPEN FONT LICENSE, Version 1.1"
	default:
		return "Unknown License"
	}
}

// legal returns the license's core legal clause, used standalone for GetLicenseLegal.
func (l License) legal() string {
	switch l {
	case License_MIT:
		return l.name() + "\n\n" +
			"Permission is hereby granted, free of charge, to any person obtaining a copy of this software and " +
			"associated documentation files, to deal in the Software without restriction, including without " +
			"limitation the rights to use, copy, modify, merge, publish, distribute, sublicense, and/or sell " +
			"copies of the Software.\n\n" +
			"THE SOFTWARE IS PROVIDED \"AS IS\", WITHOUT WARRANTY OF ANY KIND."
	case License_Unlicense:
		return "This is free and unencumbered software released into the public domain."
	default:
		return l.name() + "\n\nSee the full license text for the applicable terms and conditions."
	}
}

// boiler returns the per-file header boilerplate, bound to the given package,
// description, author and copyright year.
func (l License) boiler(pkg, desc, author string, year int) string {
	switch l {
	case License_GNU_GPL_v3, License_GNU_Affero_GPL_v3, License_GNU_Lesser_GPL_v3:
		return fmt.Sprintf("%s\n\n%s - %s\n\nCopyright (C) %d %s\n\n"+
			"This program is free software: you can redistribute it and/or modify it under the terms of the %s.",
			l.name(), pkg, desc, year, author, l.name())
	case License_Creative_Common_Zero_v1, License_Creative_Common_Attribution_v4_int, License_Creative_Common_Attribution_Share_Alike_v4_int:
		return fmt.Sprintf("%s\n\nCopyright (C) %d %s\n\n%s - %s", l.name(), year, author, pkg, desc)
	case License_Unlicense:
		return l.legal()
	default:
		return fmt.Sprintf("%s\n\nCopyright (c) %d %s\n\n%s - %s", l.name(), year, author, pkg, desc)
	}
}
