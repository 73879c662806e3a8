// Package ocr reads burned-in annotation text from exported phantom
// screenshots and maps it to an analysis profile.
//
// Scanner consoles often export QA images as plain PNG/JPEG screenshots with
// the sequence name ("T2 DOMED", "t1_flat") drawn into a corner. ReadText runs
// Tesseract (via gosseract/v2) on such an image; IdentifyProfile matches the
// recognized text against the profile registry.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// IdentifyProfile is pure string matching and works without Tesseract, for
// example on a DICOM Series Description.
package ocr
