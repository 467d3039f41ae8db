// Package textutil provides title normalization shared by the catalog, the
// Shikimori client cache, and the title matcher.
//
// Normalization applies Unicode NFC composition, full case folding, and
// whitespace collapsing so that "Shingeki no Kyojin" and "SHINGEKI  NO
// KYOJIN" compare equal, as do precomposed and decomposed Cyrillic forms.
package textutil
