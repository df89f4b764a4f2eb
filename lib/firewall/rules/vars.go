package rules

import (
	"net/http"

	. "static-file-filter/lib/firewall/interfaces"
)

var BreakLoopResult = FilterResult{
	Error:     nil,
	Passed:    true,
	BreakLoop: true,
}

var PassToNext = FilterResult{
	Error:     nil,
	Passed:    true,
	BreakLoop: false,
}

var AbortRequestResult = FilterResult{
	Error:     nil,
	Passed:    false,
	BreakLoop: false,
	Status:    http.StatusForbidden,
}
