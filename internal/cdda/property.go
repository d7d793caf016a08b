package cdda

import (
	"fmt"

	"cddasrc/internal/bus"
	"cddasrc/internal/logging"
)

// Property names.
const (
	PropertyDevice    = "device"
	PropertyReadSpeed = "read-speed"
)

// PropertyNames lists the properties in display order.
func PropertyNames() []string {
	return []string{PropertyDevice, PropertyReadSpeed}
}

// SetReadSpeed stores the raw read-speed property. Values outside -1..100
// are rejected and leave the stored value unchanged. The value is applied
// at the next Open.
func (s *Session) SetReadSpeed(v int) error {
	speed, err := ParseReadSpeed(v)
	if err != nil {
		return err
	}
	s.speed.Store(int32(speed.Int()))
	return nil
}

// ReadSpeed returns the raw read-speed property.
func (s *Session) ReadSpeed() int {
	return int(s.speed.Load())
}

// Speed returns the typed read-speed property.
func (s *Session) Speed() ReadSpeed {
	speed, err := ParseReadSpeed(s.ReadSpeed())
	if err != nil {
		return DeviceDefault
	}
	return speed
}

// SetDevicePath sets the device used by Open when none is passed.
func (s *Session) SetDevicePath(path string) {
	s.devMu.Lock()
	s.devicePath = path
	s.devMu.Unlock()
}

// DevicePath returns the device property.
func (s *Session) DevicePath() string {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	return s.devicePath
}

// SetProperty sets a property by name. Unknown names are logged and posted
// as warnings and otherwise ignored.
func (s *Session) SetProperty(name string, value any) error {
	switch name {
	case PropertyDevice:
		path, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s wants string, got %T", ErrPropertyType, name, value)
		}
		s.SetDevicePath(path)
		return nil
	case PropertyReadSpeed:
		v, ok := toInt(value)
		if !ok {
			return fmt.Errorf("%w: %s wants int, got %T", ErrPropertyType, name, value)
		}
		return s.SetReadSpeed(v)
	default:
		s.invalidProperty(name)
		return nil
	}
}

// Property returns a property value by name.
func (s *Session) Property(name string) (any, bool) {
	switch name {
	case PropertyDevice:
		return s.DevicePath(), true
	case PropertyReadSpeed:
		return s.ReadSpeed(), true
	default:
		s.invalidProperty(name)
		return nil, false
	}
}

func (s *Session) invalidProperty(name string) {
	logging.WarnWithContext(s.logger, "invalid property", "invalid_property",
		logging.String("property", name),
		logging.String(logging.FieldImpact, "property ignored"),
		logging.String(logging.FieldErrorHint, "valid properties: device, read-speed"),
	)
	s.postWarning(bus.CodeInvalidProperty, "Invalid property.", fmt.Sprintf("unknown property %q", name))
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case ReadSpeed:
		return v.Int(), true
	default:
		return 0, false
	}
}
