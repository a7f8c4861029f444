package events

import "testing"

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []DeviceError
	bus.Subscribe(func(ev DeviceError) {
		got = append(got, ev)
	})

	ev := DeviceError{RoomName: "Kitchen", Message: "Device name is required", Kind: KindName}
	bus.Publish(ev)

	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0] != ev {
		t.Errorf("received %+v, want %+v", got[0], ev)
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	count := 0
	cancel := bus.Subscribe(func(DeviceError) { count++ })

	bus.Publish(DeviceError{Kind: KindType})
	cancel()
	bus.Publish(DeviceError{Kind: KindType})

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", bus.SubscriberCount())
	}
}

func TestBus_CancelIsIdempotent(t *testing.T) {
	bus := NewBus()
	cancel := bus.Subscribe(func(DeviceError) {})

	cancel()
	cancel()

	if bus.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", bus.SubscriberCount())
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()

	a, b := 0, 0
	bus.Subscribe(func(DeviceError) { a++ })
	bus.Subscribe(func(DeviceError) { b++ })

	bus.Publish(DeviceError{RoomName: "All", Message: "Device type is required", Kind: KindType})

	if a != 1 || b != 1 {
		t.Errorf("handlers called (%d, %d) times, want (1, 1)", a, b)
	}
}
