// Package events provides a lightweight publish/subscribe channel for
// device form errors.
//
// The device form coordinator publishes a DeviceError whenever a
// submission fails validation; room-level toast surfaces and the
// WebSocket hub subscribe to surface the failure to panels. Delivery is
// synchronous and ordered, so subscribers must return quickly.
package events
