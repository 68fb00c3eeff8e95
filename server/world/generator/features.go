package generator

// Feature passes (biome.Feature.Apply, called from Pipeline.GenerateColumn)
// write only within the local column's [0,SX)x[0,SZ) bounds, by
// construction of the populate.Grid contract. A feature whose effect would
// naturally extend past that boundary (a cliff ridge, a wide ore vein) is
// truncated at the column edge rather than carried into the neighbor,
// which shows up as a seam. A "postgen" second pass that could write into
// an already-generated neighbor would remove the seam; it is not
// implemented here.
