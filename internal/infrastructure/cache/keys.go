package cache

import (
	"strconv"
	"strings"
)

// Key builders. Invalidation matches by substring, so every key starts with
// a family prefix that the write paths can target. Caller-supplied fields
// are escaped so ":" only ever separates fields and distinct natural keys
// never share an entry.

var fieldEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func field(s string) string {
	return fieldEscaper.Replace(s)
}

func join(family string, fields ...string) string {
	var b strings.Builder
	b.WriteString(family)
	for _, f := range fields {
		b.WriteByte(':')
		b.WriteString(field(f))
	}
	return b.String()
}

func TicketKey(scope, number string) string {
	return join("ticket:num", scope, number)
}

func TicketChannelKey(channelRef string) string {
	return join("ticket:chan", channelRef)
}

func UserTicketsKey(userID, status string) string {
	return join("tickets:user", userID, status)
}

func ClaimantTicketsKey(claimantID, status string) string {
	return join("tickets:claimant", claimantID, status)
}

func AllTicketsKey(status string) string {
	return join("tickets:all", status)
}

// HelperKey with an empty id yields the prefix of every helper entry.
func HelperKey(userID string) string {
	if userID == "" {
		return "helper:"
	}
	return join("helper:rec", userID)
}

func TopHelpersKey(period string, limit int) string {
	return join("helper:top", period, strconv.Itoa(limit))
}

func HelperVouchesKey(helperID string, limit int) string {
	return join("vouches:helper", helperID, strconv.Itoa(limit))
}

func PaidProfileKey(userID string) string {
	return join("paidprofile", userID)
}

func QuotaKey(userID, category, subcategory, date string) string {
	return join("quota", userID, category, subcategory, date)
}

func ActivityKey(userID, date string) string {
	return join("activity", userID, date)
}

// Invalidation patterns.
const (
	TicketListsPattern = "tickets:"
	TopHelpersPattern  = "helper:top:"
)

// TicketChannelPattern matches the cached lookup for channelRef. The trailing
// end of the key is not anchored, so refs sharing a prefix are dropped too.
func TicketChannelPattern(channelRef string) string {
	return TicketChannelKey(channelRef)
}

func HelperVouchesPattern(helperID string) string {
	return join("vouches:helper", helperID) + ":"
}
