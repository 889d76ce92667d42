package cache

import "strconv"

const (
	FamilyEventList = "event_list"
	FamilyEvent     = "event"
)

// EventsListGenKey counts writes that change the list.
func EventsListGenKey() string {
	return "events:list:gen:v1"
}

func EventsListKey(gen int64) string {
	return "events:list:v1:g" + strconv.FormatInt(gen, 10)
}

// EventGenKey counts writes to one event and its attendees.
func EventGenKey(id int64) string {
	return "events:item:gen:v1:" + strconv.FormatInt(id, 10)
}

func EventKey(id, gen int64) string {
	return "events:item:v1:" + strconv.FormatInt(id, 10) + ":g" + strconv.FormatInt(gen, 10)
}
