package classify

// gtuRules maps CN / PKWiU prefixes to GTU markers.
var gtuRules = []Rule{
	// GTU_01 alcoholic beverages
	{SchemeCN, "2203", "GTU_01"}, {SchemeCN, "2204", "GTU_01"}, {SchemeCN, "2205", "GTU_01"},
	{SchemeCN, "2206", "GTU_01"}, {SchemeCN, "2208", "GTU_01"},
	// GTU_02 motor fuels, lubricants
	{SchemeCN, "2710", "GTU_02"}, {SchemeCN, "2711", "GTU_02"}, {SchemeCN, "2207", "GTU_02"},
	{SchemeCN, "3403", "GTU_02"}, {SchemeCN, "3811", "GTU_02"},
	// GTU_03 heating oil and lubricating oils
	{SchemeCN, "271019", "GTU_03"}, {SchemeCN, "271020", "GTU_03"}, {SchemeCN, "3826", "GTU_03"},
	// GTU_04 tobacco products, liquids for e-cigarettes
	{SchemeCN, "2401", "GTU_04"}, {SchemeCN, "2402", "GTU_04"}, {SchemeCN, "2403", "GTU_04"},
	{SchemeCN, "2404", "GTU_04"},
	// GTU_05 waste
	{SchemePKWiU, "38.11", "GTU_05"}, {SchemePKWiU, "38.12", "GTU_05"}, {SchemePKWiU, "38.32", "GTU_05"},
	{SchemeCN, "7204", "GTU_05"}, {SchemeCN, "7404", "GTU_05"}, {SchemeCN, "7602", "GTU_05"},
	// GTU_06 electronic devices and parts
	{SchemeCN, "8471", "GTU_06"}, {SchemeCN, "8473", "GTU_06"}, {SchemeCN, "8517", "GTU_06"},
	{SchemeCN, "8519", "GTU_06"}, {SchemeCN, "8521", "GTU_06"}, {SchemeCN, "8528", "GTU_06"},
	{SchemeCN, "8542", "GTU_06"},
	// GTU_07 vehicles and parts
	{SchemeCN, "8701", "GTU_07"}, {SchemeCN, "8702", "GTU_07"}, {SchemeCN, "8703", "GTU_07"},
	{SchemeCN, "8704", "GTU_07"}, {SchemeCN, "8705", "GTU_07"}, {SchemeCN, "8708", "GTU_07"},
	{SchemeCN, "8711", "GTU_07"}, {SchemeCN, "8714", "GTU_07"},
	// GTU_08 precious and base metals
	{SchemeCN, "7106", "GTU_08"}, {SchemeCN, "7108", "GTU_08"}, {SchemeCN, "7110", "GTU_08"},
	{SchemeCN, "7113", "GTU_08"}, {SchemeCN, "7403", "GTU_08"},
	// GTU_09 medicines and medical devices
	{SchemeCN, "3003", "GTU_09"}, {SchemeCN, "3004", "GTU_09"}, {SchemeCN, "3006", "GTU_09"},
	// GTU_12 intangible services
	{SchemePKWiU, "62.", "GTU_12"}, {SchemePKWiU, "63.", "GTU_12"}, {SchemePKWiU, "69.", "GTU_12"},
	{SchemePKWiU, "70.2", "GTU_12"}, {SchemePKWiU, "71.", "GTU_12"}, {SchemePKWiU, "73.", "GTU_12"},
	{SchemePKWiU, "74.", "GTU_12"}, {SchemePKWiU, "78.", "GTU_12"},
	// GTU_13 transport and warehousing services
	{SchemePKWiU, "49.4", "GTU_13"}, {SchemePKWiU, "52.1", "GTU_13"},
}

// sensitiveGoods is the Annex 15 list that triggers mandatory split payment
// above the threshold.
var sensitiveGoods = []Rule{
	{SchemeCN, "7204", "MPP"}, {SchemeCN, "7403", "MPP"}, {SchemeCN, "7404", "MPP"},
	{SchemeCN, "7106", "MPP"}, {SchemeCN, "7108", "MPP"},
	{SchemeCN, "8471", "MPP"}, {SchemeCN, "8517", "MPP"}, {SchemeCN, "8542", "MPP"},
	{SchemeCN, "2710", "MPP"},
	{SchemeCN, "8708", "MPP"}, {SchemeCN, "4011", "MPP"},
	{SchemePKWiU, "41.00", "MPP"}, {SchemePKWiU, "42.", "MPP"}, {SchemePKWiU, "43.", "MPP"},
}
