package subst

// WAG amino-acid replacement model (Whelan & Goldman 2001). Lower
// triangle, residue order ARNDCQEGHILKMFPSTWYV.

var wagExchange = []float64{
	0.4593,
	0.3574, 0.2165,
	1.2568, 0.6250, 8.0590,
	1.4185, 0.5317, 0.4781, 0.4746,
	0.3076, 1.4198, 2.3533, 2.1154, 0.6151,
	1.3398, 0.4932, 3.2303, 8.7235, 0.6131, 7.3272,
	1.6729, 1.0301, 1.4950, 0.8739, 0.4753, 0.2543, 1.2652,
	0.5721, 1.8298, 2.1667, 0.6197, 0.3229, 4.7744, 0.4920, 0.3355,
	1.7343, 0.2035, 0.3429, 0.5668, 0.6402, 0.5232, 0.3556, 0.6199, 0.4748,
	1.7403, 0.5609, 0.4358, 0.3532, 0.4178, 0.5366, 0.3160, 0.5276, 0.5561, 7.3394,
	0.5399, 5.9721, 3.0672, 0.6184, 0.3961, 2.2715, 2.5968, 0.3398, 1.3568, 0.2664, 0.2777,
	0.9441, 0.2820, 0.5000, 0.2219, 0.6253, 0.2828, 0.2964, 0.2129, 0.5587, 7.0088, 5.7980, 0.2283,
	0.2301, 0.5287, 0.3517, 0.4619, 0.1996, 0.5881, 0.5025, 0.1987, 0.5588, 1.4226, 2.0742, 0.5799, 2.3006,
	2.0694, 0.2525, 0.2514, 0.3057, 0.6077, 0.5693, 0.2272, 0.3020, 0.5945, 0.4078, 0.3871, 0.4012, 0.2562, 0.2313,
	6.6261, 0.5854, 5.0908, 0.3431, 3.5912, 0.5928, 0.3563, 2.1732, 0.6248, 0.4008, 0.5297, 0.2421, 0.5250, 0.2252, 2.1092,
	1.7590, 0.4685, 1.4376, 0.5862, 0.5343, 0.3351, 0.5932, 0.5855, 0.6223, 1.0264, 0.3527, 1.0703, 0.8352, 0.2426, 1.1221, 9.3894,
	0.2760, 1.0903, 0.3131, 0.3321, 1.1032, 0.5334, 0.2205, 0.5377, 0.4705, 0.2024, 0.2379, 0.3525, 0.5057, 1.7515, 0.4441, 0.6029, 0.4739,
	0.5259, 0.2627, 0.9520, 0.2110, 0.6302, 0.3945, 0.4940, 0.3625, 1.8961, 0.5924, 0.3254, 0.2033, 0.4641, 5.2287, 0.4121, 0.3263, 0.4507, 3.0991,
	4.1920, 0.3175, 0.4507, 0.6223, 0.5334, 0.2287, 0.4674, 0.2352, 0.5196, 17.9383, 7.8573, 0.4748, 3.2149, 1.7671, 0.5985, 0.5548, 1.9642, 0.5311, 0.2465,
}

var wagFreqs = []float64{
	0.0776, 0.0410, 0.0388, 0.0520, 0.0189,
	0.0421, 0.0746, 0.0772, 0.0251, 0.0564,
	0.0852, 0.0467, 0.0265, 0.0340, 0.0598,
	0.0815, 0.0449, 0.0108, 0.0308, 0.0759,
}
