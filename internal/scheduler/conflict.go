package scheduler

// ResourceKind identifies which bookable party a conflict check concerns.
type ResourceKind string

const (
	// ResourceDoctor indicates the clinician side of a booking.
	ResourceDoctor ResourceKind = "doctor"
	// ResourcePatient indicates the patient side of a booking.
	ResourcePatient ResourceKind = "patient"
)

// Booking is the projection of an appointment needed for conflict detection.
type Booking struct {
	ID        int64
	PatientID int64
	DoctorID  int64
	Slot      Slot
	Status    Status
}

// Conflict details a double-booked slot that callers can present to users.
type Conflict struct {
	WithAppointmentID int64
	Kind              ResourceKind
	ResourceID        int64
}

// HasConflict reports whether the resource of the given kind already holds an
// active booking at the slot. Cancelled bookings never conflict, and the
// booking identified by excludeID is ignored so an update does not collide
// with the record being edited. Pass excludeID 0 when creating.
func HasConflict(existing []Booking, kind ResourceKind, resourceID int64, slot Slot, excludeID int64) bool {
	for _, booking := range existing {
		if booking.ID == excludeID {
			continue
		}
		if !booking.Status.Active() {
			continue
		}
		if !booking.Slot.Equal(slot) {
			continue
		}
		if resourceOf(booking, kind) == resourceID {
			return true
		}
	}
	return false
}

// DetectConflicts identifies every conflict the candidate booking would cause
// against the existing set, checking both the doctor and the patient side.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	var conflicts []Conflict
	for _, booking := range existing {
		if booking.ID == candidate.ID {
			continue
		}
		if !booking.Status.Active() {
			continue
		}
		if !booking.Slot.Equal(candidate.Slot) {
			continue
		}
		if booking.DoctorID == candidate.DoctorID {
			conflicts = append(conflicts, Conflict{
				WithAppointmentID: booking.ID,
				Kind:              ResourceDoctor,
				ResourceID:        booking.DoctorID,
			})
		}
		if booking.PatientID == candidate.PatientID {
			conflicts = append(conflicts, Conflict{
				WithAppointmentID: booking.ID,
				Kind:              ResourcePatient,
				ResourceID:        booking.PatientID,
			})
		}
	}
	return conflicts
}

func resourceOf(booking Booking, kind ResourceKind) int64 {
	if kind == ResourceDoctor {
		return booking.DoctorID
	}
	return booking.PatientID
}
