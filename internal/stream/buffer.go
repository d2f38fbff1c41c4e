package stream

// WindowBuffer holds not-yet-consumed input samples in one contiguous slice
// so a Block always sees its whole window at once. Free space at the front,
// left behind by Consume, is reclaimed by compacting on AddData.
type WindowBuffer struct {
	name   string
	buffer []uint8
	oPtr   int // first unconsumed sample
	iPtr   int // one past the last buffered sample
}

// NewWindowBuffer creates a buffer able to hold length samples.
func NewWindowBuffer(length int, name string) *WindowBuffer {
	if length <= 0 {
		panic("WindowBuffer length must be > 0")
	}

	return &WindowBuffer{
		name:   name,
		buffer: make([]uint8, length),
	}
}

// AddData appends samples to the window. It returns false, adding nothing,
// if they do not fit.
func (wb *WindowBuffer) AddData(data []uint8) bool {
	if !wb.HasSpace(len(data)) {
		return false
	}

	if wb.iPtr+len(data) > len(wb.buffer) {
		wb.compact()
	}

	wb.iPtr += copy(wb.buffer[wb.iPtr:], data)
	return true
}

// Window returns the buffered samples. The slice is only valid until the
// next AddData, Consume or Clear.
func (wb *WindowBuffer) Window() []uint8 {
	return wb.buffer[wb.oPtr:wb.iPtr]
}

// Consume drops n samples from the front of the window.
func (wb *WindowBuffer) Consume(n int) {
	if n > wb.DataSize() {
		n = wb.DataSize()
	}
	wb.oPtr += n
	if wb.oPtr == wb.iPtr {
		wb.oPtr = 0
		wb.iPtr = 0
	}
}

func (wb *WindowBuffer) compact() {
	n := copy(wb.buffer, wb.buffer[wb.oPtr:wb.iPtr])
	wb.oPtr = 0
	wb.iPtr = n
}

// Clear empties the buffer.
func (wb *WindowBuffer) Clear() {
	wb.oPtr = 0
	wb.iPtr = 0
}

// DataSize returns the number of buffered samples.
func (wb *WindowBuffer) DataSize() int {
	return wb.iPtr - wb.oPtr
}

// FreeSpace returns how many more samples fit.
func (wb *WindowBuffer) FreeSpace() int {
	return len(wb.buffer) - wb.DataSize()
}

// HasSpace checks if there's room for length more samples.
func (wb *WindowBuffer) HasSpace(length int) bool {
	return wb.FreeSpace() >= length
}

// IsEmpty checks if the buffer holds no samples.
func (wb *WindowBuffer) IsEmpty() bool {
	return wb.iPtr == wb.oPtr
}

// GetName returns the buffer name for debugging
func (wb *WindowBuffer) GetName() string {
	return wb.name
}

// GetLength returns the buffer capacity
func (wb *WindowBuffer) GetLength() int {
	return len(wb.buffer)
}
