/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package persistence

// subscription is one named callback in an ordered registry.
type subscription struct {
	name string
	fn   func()
}

// EventManager holds the PreSave and PostSave subscriber registries fired
// around DataAccess.Commit. Subscribers are invoked synchronously in
// subscription order; they observe the commit boundary and cannot cancel or
// alter it. Not safe for concurrent use, matching the session it observes.
type EventManager struct {
	context  *DataAccess
	preSave  []subscription
	postSave []subscription
}

// NewEventManager returns an empty event manager, not yet bound to a façade.
func NewEventManager() *EventManager {
	return &EventManager{}
}

// Context returns the façade this manager is bound to, or nil.
func (m *EventManager) Context() *DataAccess {
	return m.context
}

// SubscribePreSave registers fn to run before the commit call. Subscribing
// an existing name replaces the callback in place, keeping its order slot.
func (m *EventManager) SubscribePreSave(name string, fn func()) {
	m.preSave = subscribe(m.preSave, name, fn)
}

// UnsubscribePreSave removes the named PreSave subscription if present.
func (m *EventManager) UnsubscribePreSave(name string) {
	m.preSave = unsubscribe(m.preSave, name)
}

// SubscribePostSave registers fn to run after a successful commit call.
// Subscribing an existing name replaces the callback in place.
func (m *EventManager) SubscribePostSave(name string, fn func()) {
	m.postSave = subscribe(m.postSave, name, fn)
}

// UnsubscribePostSave removes the named PostSave subscription if present.
func (m *EventManager) UnsubscribePostSave(name string) {
	m.postSave = unsubscribe(m.postSave, name)
}

func (m *EventManager) firePreSave() {
	for _, sub := range m.preSave {
		sub.fn()
	}
}

func (m *EventManager) firePostSave() {
	for _, sub := range m.postSave {
		sub.fn()
	}
}

func subscribe(subs []subscription, name string, fn func()) []subscription {
	for i := range subs {
		if subs[i].name == name {
			subs[i].fn = fn
			return subs
		}
	}
	return append(subs, subscription{name: name, fn: fn})
}

func unsubscribe(subs []subscription, name string) []subscription {
	for i := range subs {
		if subs[i].name == name {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
