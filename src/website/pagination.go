package website

import (
	"strconv"
)

/*
Parses the ?page= query parameter. The backend only says whether there is a
next page, so there is no upper bound to check here.

The returned page number is always valid, even when parsing fails. If
parsing fails (ok is false), you should redirect to the returned
page number.
*/
func parsePageParam(pageParam string) (page int, ok bool) {
	if pageParam == "" {
		return 1, true
	}
	page, err := strconv.Atoi(pageParam)
	if err != nil || page < 1 {
		return 1, false
	}
	return page, true
}
