// Package document handles statement PDFs on the client side: page counting
// for fetched documents and the page/zoom state machine behind the viewer.
package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

var (
	pageObjPattern   = regexp.MustCompile(`/Type\s*/Page\b`)
	pageCountPattern = regexp.MustCompile(`/Count\s+(\d+)`)
)

// PageCount reports the number of pages in a PDF byte stream by counting page
// objects, falling back to the page tree's /Count entry when the page objects
// live inside object streams. Statement scanners emit plain page trees, so
// the direct count is the common path.
func PageCount(data []byte) (int, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, fmt.Errorf("not a PDF document")
	}

	if n := len(pageObjPattern.FindAll(data, -1)); n > 0 {
		return n, nil
	}

	if m := pageCountPattern.FindSubmatch(data); m != nil {
		n, err := strconv.Atoi(string(m[1]))
		if err == nil && n > 0 {
			return n, nil
		}
	}

	return 0, fmt.Errorf("no pages found in document")
}
