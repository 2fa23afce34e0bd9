package subst

// LG amino-acid replacement model (Le & Gascuel 2008). Lower triangle,
// residue order ARNDCQEGHILKMFPSTWYV.

var lgExchange = []float64{
	0.5975,
	0.4400, 0.3676,
	0.5542, 0.5330, 6.4136,
	1.9094, 0.5561, 0.6374, 0.6020,
	0.4002, 1.5931, 2.5750, 4.0151, 0.4496,
	1.8827, 0.3169, 3.5287, 10.8093, 0.4438, 8.5168,
	2.5799, 0.5434, 1.8022, 1.7810, 0.6094, 0.6159, 0.7102,
	0.2179, 3.2106, 4.1446, 0.5832, 0.3126, 3.8645, 0.2511, 0.5528,
	1.3253, 0.5138, 0.2090, 0.3604, 0.5593, 0.2009, 0.2555, 0.2424, 0.3710,
	1.1139, 0.5758, 0.5866, 0.2979, 0.5938, 0.3217, 0.5901, 0.1985, 0.3249, 10.3450,
	0.1962, 16.7100, 2.0601, 0.2190, 0.5433, 4.0358, 1.3013, 0.4605, 1.9902, 0.2169, 0.2625,
	1.4297, 0.5848, 0.5331, 0.5852, 0.1957, 0.2200, 0.4925, 0.4189, 0.3097, 2.2839, 5.1287, 0.3501,
	0.4472, 0.4499, 0.3504, 0.2603, 0.3457, 0.4089, 0.2700, 0.5152, 0.2440, 1.8180, 3.1941, 0.3633, 2.1934,
	0.8253, 0.3366, 0.3005, 0.5202, 0.3024, 1.0694, 0.3225, 0.2836, 0.4971, 0.4792, 0.5211, 0.2472, 0.5812, 0.3644,
	4.7763, 0.7729, 3.9015, 0.3510, 2.8134, 0.3725, 0.5300, 2.2191, 0.4971, 0.3423, 0.4388, 0.3601, 0.3060, 0.4644, 2.6287,
	1.9271, 0.3178, 3.6654, 0.2558, 0.2242, 0.4239, 0.2851, 0.6419, 0.3169, 2.0465, 0.3648, 0.8171, 2.1716, 0.5856, 1.2668, 9.8675,
	0.3590, 1.0302, 0.2700, 0.5710, 1.1295, 0.5389, 0.5972, 0.2220, 0.3428, 0.4178, 0.3988, 0.5786, 0.5893, 1.2652, 0.4864, 0.5207, 0.4721,
	0.3489, 0.6188, 0.9056, 0.2803, 0.8818, 0.4705, 0.5158, 0.4111, 2.3440, 0.6104, 0.3480, 0.4887, 0.2996, 10.3581, 0.6028, 0.3962, 0.5260, 3.3893,
	2.8967, 0.3574, 0.6205, 0.6209, 0.5266, 0.4239, 0.3885, 0.4900, 0.4234, 16.1660, 6.0842, 0.3915, 3.0761, 1.1963, 0.3039, 0.5596, 1.5313, 0.3317, 0.4243,
}

var lgFreqs = []float64{
	0.0712, 0.0611, 0.0471, 0.0409, 0.0195,
	0.0353, 0.0607, 0.0875, 0.0228, 0.0586,
	0.0916, 0.0530, 0.0278, 0.0398, 0.0484,
	0.0824, 0.0513, 0.0141, 0.0277, 0.0592,
}
