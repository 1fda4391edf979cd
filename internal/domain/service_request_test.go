package domain

import (
	"testing"
	"time"

	apperrors "github.com/spec-kit/hostel-service/pkg/util/errorutil"
)

func resident() *User {
	block := Block("C")
	room := "214"
	return &User{ID: "student-1", Role: RoleStudent, Active: true, Block: &block, RoomNumber: &room}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func fieldNames(t *testing.T, err error) map[string]bool {
	t.Helper()
	domainErr := apperrors.ToDomainError(err)
	if domainErr == nil || domainErr.Kind != apperrors.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields, ok := domainErr.Details["fields"].([]apperrors.FieldError)
	if !ok {
		t.Fatalf("validation error without field list: %#v", domainErr.Details)
	}
	names := make(map[string]bool, len(fields))
	for _, f := range fields {
		names[f.Field] = true
	}
	return names
}

func TestNewServiceRequestSnapshotsLocation(t *testing.T) {
	owner := resident()
	req, err := NewServiceRequest(owner, NewRequestParams{
		ServiceType: ServiceElectrical,
		Title:       " Fan not working ",
		Description: "Ceiling fan stopped",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != StatusPending || req.Priority != PriorityMedium {
		t.Fatalf("unexpected defaults: status=%s priority=%s", req.Status, req.Priority)
	}
	if req.Title != "Fan not working" {
		t.Fatalf("title not trimmed: %q", req.Title)
	}
	if req.Location.Block != "C" || req.Location.RoomNumber != "214" {
		t.Fatalf("location not copied: %+v", req.Location)
	}
	if req.Details != nil {
		t.Fatalf("electrical requests carry no details, got %#v", req.Details)
	}

	*owner.RoomNumber = "999"
	if req.Location.RoomNumber != "214" {
		t.Fatalf("location must be a snapshot, got %s", req.Location.RoomNumber)
	}
}

func TestNewServiceRequestLaundryClothesLimit(t *testing.T) {
	_, err := NewServiceRequest(resident(), NewRequestParams{
		ServiceType: ServiceLaundry,
		Title:       "Weekly laundry",
		Description: "Shirts",
		Details: DetailsInput{
			NumberOfClothes: intPtr(30),
			PickupTime:      timePtr(time.Now().Add(time.Hour)),
		},
	})
	names := fieldNames(t, err)
	if !names["service_details.number_of_clothes"] || len(names) != 1 {
		t.Fatalf("expected only number_of_clothes to fail, got %v", names)
	}
}

func TestNewServiceRequestReportsEveryField(t *testing.T) {
	owner := resident()
	owner.Block = nil
	_, err := NewServiceRequest(owner, NewRequestParams{
		ServiceType: ServiceRoomAllocation,
		Priority:    "whenever",
		Details: DetailsInput{
			RequestedRoomType: strPtr("5-bedded"),
			NumberOfClothes:   intPtr(3),
		},
	})
	names := fieldNames(t, err)
	for _, want := range []string{
		"title",
		"description",
		"priority",
		"location",
		"service_details.requested_room_type",
		"service_details.requested_ac_type",
		"service_details.requested_hostel_type",
		"service_details.number_of_clothes",
	} {
		if !names[want] {
			t.Fatalf("expected %s among failing fields %v", want, names)
		}
	}
}

func TestBuildDetailsVariants(t *testing.T) {
	pickup := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name        string
		serviceType ServiceType
		input       DetailsInput
		want        ServiceDetails
		wantErr     bool
	}{
		{"laundry", ServiceLaundry, DetailsInput{NumberOfClothes: intPtr(25), PickupTime: &pickup}, LaundryDetails{NumberOfClothes: 25, PickupTime: pickup}, false},
		{"laundry zero clothes", ServiceLaundry, DetailsInput{NumberOfClothes: intPtr(0), PickupTime: &pickup}, nil, true},
		{"laundry missing pickup", ServiceLaundry, DetailsInput{NumberOfClothes: intPtr(2)}, nil, true},
		{"cleaning", ServiceCleaning, DetailsInput{CleaningType: strPtr("bathroom")}, CleaningDetails{CleaningType: CleaningBathroom}, false},
		{"cleaning missing", ServiceCleaning, DetailsInput{}, nil, true},
		{"cleaning unknown", ServiceCleaning, DetailsInput{CleaningType: strPtr("roof")}, nil, true},
		{"room allocation", ServiceRoomAllocation, DetailsInput{
			RequestedRoomType:   strPtr("2-bedded"),
			RequestedACType:     strPtr("AC"),
			RequestedHostelType: strPtr("Women's"),
		}, RoomAllocationDetails{RequestedRoomType: RoomType2Bed, RequestedACType: ACTypeAC, RequestedHostelType: HostelTypeWomen}, false},
		{"wifi", ServiceWifi, DetailsInput{}, nil, false},
		{"wifi with stray field", ServiceWifi, DetailsInput{CleaningType: strPtr("room")}, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, errs := BuildDetails(tc.serviceType, tc.input)
			if tc.wantErr {
				if len(errs) == 0 {
					t.Fatalf("expected field errors")
				}
				return
			}
			if len(errs) > 0 {
				t.Fatalf("unexpected field errors: %v", errs)
			}
			if got != tc.want {
				t.Fatalf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestDetailsStorageEncoding(t *testing.T) {
	raw, err := MarshalDetails(CleaningDetails{CleaningType: CleaningCommonArea})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := UnmarshalDetails(ServiceCleaning, raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != (CleaningDetails{CleaningType: CleaningCommonArea}) {
		t.Fatalf("unexpected details %#v", decoded)
	}

	raw, _ = MarshalDetails(nil)
	if decoded, err := UnmarshalDetails(ServiceMess, raw); err != nil || decoded != nil {
		t.Fatalf("expected nil details, got %#v (%v)", decoded, err)
	}
}

func TestBlocks(t *testing.T) {
	if len(Blocks) != 18 {
		t.Fatalf("expected 18 blocks, got %d", len(Blocks))
	}
	for _, b := range []Block{"I", "O", "U", ""} {
		if b.Valid() {
			t.Fatalf("block %q should be invalid", b)
		}
	}
}
