package core

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-drift/fiber/pkg/host"
)

// DefaultEventPrefix marks event-handler props.
const DefaultEventPrefix = "on"

// propKinds splits prop keys into events and attributes.
type propKinds struct {
	prefix string
}

func (p propKinds) isEvent(key string) bool {
	if !strings.HasPrefix(key, p.prefix) || len(key) == len(p.prefix) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(key[len(p.prefix):])
	return unicode.IsUpper(r)
}

func (p propKinds) isAttribute(key string) bool {
	return key != childrenKey && !p.isEvent(key)
}

func (p propKinds) eventName(key string) string {
	return strings.ToLower(key[len(p.prefix):])
}

// propChanged reports whether a prop value differs between renders.
// Functions are never equal to each other.
func propChanged(prev, next any) bool {
	if prev == nil || next == nil {
		return prev != nil || next != nil
	}
	pt, nt := reflect.TypeOf(prev), reflect.TypeOf(next)
	if pt != nt {
		return true
	}
	if pt.Kind() == reflect.Func {
		return true
	}
	if reflect.ValueOf(prev).Comparable() {
		return prev != next
	}
	return !reflect.DeepEqual(prev, next)
}

// applyProps brings node's attributes and listeners from prev to next:
// stale listeners are removed, gone attributes cleared, new or changed
// attributes set, and new or changed listeners added, in that order. Keys
// are visited in sorted order so the host sees a stable call sequence.
func (r *Root) applyProps(node host.Node, prev, next Props) error {
	kinds := propKinds{prefix: r.opts.EventPrefix}
	prevKeys := slices.Sorted(maps.Keys(prev))
	nextKeys := slices.Sorted(maps.Keys(next))

	for _, key := range prevKeys {
		if !kinds.isEvent(key) {
			continue
		}
		nv, ok := next[key]
		if !ok || propChanged(prev[key], nv) {
			if err := r.host.RemoveEventListener(node, kinds.eventName(key), prev[key]); err != nil {
				return err
			}
		}
	}
	for _, key := range prevKeys {
		if !kinds.isAttribute(key) {
			continue
		}
		if _, ok := next[key]; !ok {
			if err := r.host.RemoveAttribute(node, key); err != nil {
				return err
			}
		}
	}
	for _, key := range nextKeys {
		if !kinds.isAttribute(key) {
			continue
		}
		pv, had := prev[key]
		if !had || propChanged(pv, next[key]) {
			if err := r.host.SetAttribute(node, key, next[key]); err != nil {
				return err
			}
		}
	}
	for _, key := range nextKeys {
		if !kinds.isEvent(key) {
			continue
		}
		pv, had := prev[key]
		if !had || propChanged(pv, next[key]) {
			if err := r.host.AddEventListener(node, kinds.eventName(key), next[key]); err != nil {
				return err
			}
		}
	}
	return nil
}
