package domain

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

const (
	MinClothes = 1
	MaxClothes = 25
)

// CleaningType is the area a cleaning job covers.
type CleaningType string

const (
	CleaningRoom       CleaningType = "room"
	CleaningBathroom   CleaningType = "bathroom"
	CleaningCommonArea CleaningType = "common-area"
)

func (t CleaningType) Valid() bool {
	switch t {
	case CleaningRoom, CleaningBathroom, CleaningCommonArea:
		return true
	}
	return false
}

// ServiceDetails is the service-specific payload of a request. Each service
// type has its own variant; types without extra data carry nil.
type ServiceDetails interface {
	ServiceType() ServiceType
}

// LaundryDetails is the payload of laundry requests.
type LaundryDetails struct {
	NumberOfClothes int       `json:"number_of_clothes"`
	PickupTime      time.Time `json:"pickup_time"`
}

func (LaundryDetails) ServiceType() ServiceType { return ServiceLaundry }

// CleaningDetails is the payload of cleaning requests.
type CleaningDetails struct {
	CleaningType CleaningType `json:"cleaning_type"`
}

func (CleaningDetails) ServiceType() ServiceType { return ServiceCleaning }

// RoomAllocationDetails is the payload of room allocation requests.
type RoomAllocationDetails struct {
	RequestedRoomType   RoomType   `json:"requested_room_type"`
	RequestedACType     ACType     `json:"requested_ac_type"`
	RequestedHostelType HostelType `json:"requested_hostel_type"`
}

func (RoomAllocationDetails) ServiceType() ServiceType { return ServiceRoomAllocation }

// DetailsInput is the loosely typed details payload received from callers.
type DetailsInput struct {
	NumberOfClothes     *int       `json:"number_of_clothes,omitempty"`
	PickupTime          *time.Time `json:"pickup_time,omitempty"`
	CleaningType        *string    `json:"cleaning_type,omitempty"`
	RequestedRoomType   *string    `json:"requested_room_type,omitempty"`
	RequestedACType     *string    `json:"requested_ac_type,omitempty"`
	RequestedHostelType *string    `json:"requested_hostel_type,omitempty"`
}

// BuildDetails checks that input matches the variant of serviceType and
// returns it. Fields that belong to another variant are rejected.
func BuildDetails(serviceType ServiceType, input DetailsInput) (ServiceDetails, []apperrors.FieldError) {
	var fields []apperrors.FieldError
	required := func(name string) {
		fields = append(fields, apperrors.FieldError{Field: "service_details." + name, Message: "is required for " + string(serviceType)})
	}
	invalid := func(name, msg string) {
		fields = append(fields, apperrors.FieldError{Field: "service_details." + name, Message: msg})
	}

	present := map[string]bool{
		"number_of_clothes":     input.NumberOfClothes != nil,
		"pickup_time":           input.PickupTime != nil,
		"cleaning_type":         input.CleaningType != nil,
		"requested_room_type":   input.RequestedRoomType != nil,
		"requested_ac_type":     input.RequestedACType != nil,
		"requested_hostel_type": input.RequestedHostelType != nil,
	}
	allowed := map[string]bool{}
	for _, name := range variantFields[serviceType] {
		allowed[name] = true
	}
	for _, name := range detailFieldOrder {
		if present[name] && !allowed[name] {
			invalid(name, "is not applicable to "+string(serviceType))
		}
	}

	var details ServiceDetails
	switch serviceType {
	case ServiceLaundry:
		d := LaundryDetails{}
		if input.NumberOfClothes == nil {
			required("number_of_clothes")
		} else if *input.NumberOfClothes < MinClothes || *input.NumberOfClothes > MaxClothes {
			invalid("number_of_clothes", fmt.Sprintf("must be between %d and %d", MinClothes, MaxClothes))
		} else {
			d.NumberOfClothes = *input.NumberOfClothes
		}
		if input.PickupTime == nil || input.PickupTime.IsZero() {
			required("pickup_time")
		} else {
			d.PickupTime = input.PickupTime.UTC()
		}
		details = d
	case ServiceCleaning:
		d := CleaningDetails{}
		if input.CleaningType == nil {
			required("cleaning_type")
		} else if ct := CleaningType(*input.CleaningType); !ct.Valid() {
			invalid("cleaning_type", "must be one of room, bathroom, common-area")
		} else {
			d.CleaningType = ct
		}
		details = d
	case ServiceRoomAllocation:
		d := RoomAllocationDetails{}
		if input.RequestedRoomType == nil {
			required("requested_room_type")
		} else if rt := RoomType(*input.RequestedRoomType); !rt.Valid() {
			invalid("requested_room_type", "is not a known room type")
		} else {
			d.RequestedRoomType = rt
		}
		if input.RequestedACType == nil {
			required("requested_ac_type")
		} else if ac := ACType(*input.RequestedACType); !ac.Valid() {
			invalid("requested_ac_type", "must be AC or Non-AC")
		} else {
			d.RequestedACType = ac
		}
		if input.RequestedHostelType == nil {
			required("requested_hostel_type")
		} else if ht := HostelType(*input.RequestedHostelType); !ht.Valid() {
			invalid("requested_hostel_type", "must be Men's or Women's")
		} else {
			d.RequestedHostelType = ht
		}
		details = d
	}

	if len(fields) > 0 {
		return nil, fields
	}
	return details, nil
}

var detailFieldOrder = []string{
	"number_of_clothes", "pickup_time", "cleaning_type",
	"requested_room_type", "requested_ac_type", "requested_hostel_type",
}

var variantFields = map[ServiceType][]string{
	ServiceLaundry:        {"number_of_clothes", "pickup_time"},
	ServiceCleaning:       {"cleaning_type"},
	ServiceRoomAllocation: {"requested_room_type", "requested_ac_type", "requested_hostel_type"},
}

// MarshalDetails encodes details for storage. Nil details encode as null.
func MarshalDetails(details ServiceDetails) ([]byte, error) {
	if details == nil {
		return []byte("null"), nil
	}
	return json.Marshal(details)
}

// UnmarshalDetails decodes stored details into the variant of serviceType.
func UnmarshalDetails(serviceType ServiceType, raw []byte) (ServiceDetails, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch serviceType {
	case ServiceLaundry:
		var d LaundryDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d, nil
	case ServiceCleaning:
		var d CleaningDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d, nil
	case ServiceRoomAllocation:
		var d RoomAllocationDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, nil
	}
}
