package persistence

import "errors"

// Sentinel errors returned by repository implementations. Callers classify
// storage failures with errors.Is against these values.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a uniqueness constraint other than the slot
	// indexes was violated, such as a duplicate document or email.
	ErrDuplicate = errors.New("duplicate record")

	// ErrDoctorSlotTaken indicates the doctor already has an active booking
	// at the requested date and time.
	ErrDoctorSlotTaken = errors.New("doctor slot already booked")

	// ErrPatientSlotTaken indicates the patient already has an active
	// booking at the requested date and time.
	ErrPatientSlotTaken = errors.New("patient slot already booked")

	// ErrForeignKeyViolation indicates a referenced row does not exist or
	// is still referenced by other rows.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrConstraintViolation indicates a CHECK or NOT NULL constraint
	// rejected the write.
	ErrConstraintViolation = errors.New("constraint violation")
)
